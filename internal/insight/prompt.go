package insight

import (
	"fmt"

	"github.com/Wisionflow/algora/internal/models"
)

const insightSystemPrompt = `Ты — аналитик трендов товаров из Китая для российских селлеров маркетплейсов (Wildberries, Ozon).
Твоя задача — дать краткий, конкретный инсайт по товару.

Правила:
- Пиши на русском языке
- Максимум 2 предложения, не больше 200 символов
- Только факты и конкретные рекомендации
- Никакой воды, общих фраз и мотивации
- НЕ используй Markdown (звёздочки, жирный текст и т.д.) — пиши чистым текстом
- НЕ начинай с "Инсайт:" — сразу по делу
- Укажи: для кого товар + главный риск или преимущество
- Если маржа отрицательная — честно скажи об этом`

func productPrompt(p models.AnalyzedProduct) string {
	r := p.Raw
	return fmt.Sprintf(`Проанализируй этот товар для российского селлера маркетплейсов:

Товар: %s (%s)
Категория: %s
Цена FOB (Китай): ¥%.2f (~%.0f₽)
Мин. заказ: %d шт
Объём продаж в Китае: %d шт/мес
Себестоимость в РФ (ориентир): ~%.0f₽/шт
Средняя цена на WB: %.0f₽
Конкурентов на WB: %d
Расчётная маржа: %.1f%%
Поставщик: %s, %d лет на площадке

Скоринг: тренд=%.1f, конкуренция=%.1f, маржа=%.1f, надёжность=%.1f

Дай краткий инсайт: почему интересен, для кого, какие риски.`,
		r.TitleRU, r.TitleCN, r.Category, r.PriceCNY, p.PriceRUB, r.MinOrder, r.SalesVolume,
		p.TotalLandedCost, p.WBAvgPrice, p.WBCompetitors, p.MarginPct, r.SupplierName, r.SupplierYears,
		p.TrendScore, p.CompetitionScore, p.MarginScore, p.ReliabilityScore)
}

func keywordSystemPrompt(n int) string {
	return fmt.Sprintf(`Ты помогаешь русскоязычным продавцам на маркетплейсах (Wildberries, Ozon) подбирать ключевые слова для поиска товаров.

Твоя задача: предложить %d ключевых фраз для поиска на Wildberries, по которым потенциальные покупатели могут искать этот товар.

Требования:
- Ключевые слова на русском языке
- Каждая фраза 1-3 слова
- Включай популярные синонимы и вариации
- НЕ используй хэштеги, НЕ используй знаки препинания
- Возвращай ТОЛЬКО список фраз через запятую, БЕЗ нумерации, БЕЗ объяснений`, n)
}

func keywordPrompt(p models.RawProduct, n int) string {
	return fmt.Sprintf("Товар: %s\nКатегория: %s\n\nПредложи %d ключевых фраз:", p.TitleRU, p.Category, n)
}
