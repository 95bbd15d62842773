package demo

import "github.com/Wisionflow/algora/internal/models"

// catalog holds realistic products seen trending on Chinese marketplaces.
var catalog = []models.RawProduct{
	{
		SourceURL:     "https://detail.1688.com/offer/demo-bt-earphones-001.html",
		TitleCN:       "无线蓝牙耳机 降噪 运动耳机 2025新款",
		TitleRU:       "Беспроводные Bluetooth наушники с шумоподавлением, спортивные, новинка 2025",
		Category:      "electronics",
		PriceCNY:      28.5,
		MinOrder:      50,
		SalesVolume:   15200,
		SalesTrend:    45,
		Rating:        4.7,
		SupplierName:  "Shenzhen AudioTech Co.",
		SupplierYears: 6,
		WBKeyword:     "наушники беспроводные",
		WBEstPrice:    2500,
	},
	{
		SourceURL:     "https://detail.1688.com/offer/demo-mini-projector-002.html",
		TitleCN:       "迷你投影仪 家用 高清 便携式 手机投影",
		TitleRU:       "Мини-проектор портативный для дома, HD, подключение к телефону",
		Category:      "electronics",
		PriceCNY:      185,
		MinOrder:      10,
		SalesVolume:   4800,
		SalesTrend:    78,
		Rating:        4.5,
		SupplierName:  "Guangzhou OptiView Technology",
		SupplierYears: 4,
		WBKeyword:     "мини проектор",
		WBEstPrice:    7500,
	},
	{
		SourceURL:     "https://detail.1688.com/offer/demo-smart-watch-003.html",
		TitleCN:       "智能手表 心率监测 血氧检测 运动手环",
		TitleRU:       "Смарт-часы с мониторингом пульса и уровня кислорода, фитнес-браслет",
		Category:      "electronics",
		PriceCNY:      42,
		MinOrder:      30,
		SalesVolume:   22000,
		SalesTrend:    32,
		Rating:        4.6,
		SupplierName:  "Dongguan WearTech Ltd.",
		SupplierYears: 8,
		WBKeyword:     "смарт часы",
		WBEstPrice:    3200,
	},
	{
		SourceURL:     "https://detail.1688.com/offer/demo-car-holder-004.html",
		TitleCN:       "车载手机支架 磁吸 导航支架 汽车用品",
		TitleRU:       "Автомобильный магнитный держатель для телефона, крепление для навигации",
		Category:      "car_accessories",
		PriceCNY:      8.5,
		MinOrder:      100,
		SalesVolume:   35000,
		SalesTrend:    15,
		Rating:        4.8,
		SupplierName:  "Yiwu AutoParts Trading",
		SupplierYears: 11,
		WBKeyword:     "держатель телефона авто",
		WBEstPrice:    550,
	},
	{
		SourceURL:     "https://detail.1688.com/offer/demo-hand-warmer-005.html",
		TitleCN:       "USB充电暖手宝 移动电源 二合一 冬季热销",
		TitleRU:       "USB-грелка для рук + повербанк 2-в-1, зимний хит продаж",
		Category:      "gadgets",
		PriceCNY:      22,
		MinOrder:      50,
		SalesVolume:   18500,
		SalesTrend:    120,
		Rating:        4.4,
		SupplierName:  "Shenzhen GiftPower Co.",
		SupplierYears: 5,
		WBKeyword:     "грелка для рук",
		WBEstPrice:    1500,
	},
	{
		SourceURL:     "https://detail.1688.com/offer/demo-toothbrush-006.html",
		TitleCN:       "电动牙刷 超声波 充电式 成人 防水",
		TitleRU:       "Электрическая зубная щётка ультразвуковая, перезаряжаемая, водонепроницаемая",
		Category:      "home",
		PriceCNY:      35,
		MinOrder:      20,
		SalesVolume:   12000,
		SalesTrend:    55,
		Rating:        4.6,
		SupplierName:  "Ningbo OralCare Technology",
		SupplierYears: 7,
		WBKeyword:     "электрическая зубная щетка",
		WBEstPrice:    2200,
	},
	{
		SourceURL:     "https://detail.1688.com/offer/demo-pet-feeder-007.html",
		TitleCN:       "宠物自动喂食器 智能 定时 猫粮狗粮",
		TitleRU:       "Автоматическая кормушка для животных, умная, с таймером, для кошек и собак",
		Category:      "home",
		PriceCNY:      68,
		MinOrder:      10,
		SalesVolume:   8900,
		SalesTrend:    95,
		Rating:        4.3,
		SupplierName:  "Foshan PetSmart Electronics",
		SupplierYears: 3,
		WBKeyword:     "автокормушка кошка",
		WBEstPrice:    3800,
	},
	{
		SourceURL:     "https://detail.1688.com/offer/demo-blender-008.html",
		TitleCN:       "便携式榨汁杯 充电 随身 果汁机 小型",
		TitleRU:       "Портативный блендер-бутылка, перезаряжаемый, мини-соковыжималка",
		Category:      "home",
		PriceCNY:      25,
		MinOrder:      50,
		SalesVolume:   28000,
		SalesTrend:    40,
		Rating:        4.5,
		SupplierName:  "Zhongshan KitchenTech Co.",
		SupplierYears: 9,
		WBKeyword:     "портативный блендер",
		WBEstPrice:    1800,
	},
	{
		SourceURL:     "https://detail.1688.com/offer/demo-led-mirror-009.html",
		TitleCN:       "LED化妆镜 台式 带灯 触控调光 桌面镜",
		TitleRU:       "LED-зеркало для макияжа настольное с подсветкой, сенсорная регулировка яркости",
		Category:      "beauty_devices",
		PriceCNY:      32,
		MinOrder:      30,
		SalesVolume:   9500,
		SalesTrend:    60,
		Rating:        4.7,
		SupplierName:  "Shenzhen BeautyLight Ltd.",
		SupplierYears: 5,
		WBKeyword:     "зеркало с подсветкой",
		WBEstPrice:    2000,
	},
	{
		SourceURL:     "https://detail.1688.com/offer/demo-solar-light-010.html",
		TitleCN:       "太阳能户外灯 庭院灯 防水 感应灯 花园装饰",
		TitleRU:       "Солнечный садовый светильник уличный, водонепроницаемый, с датчиком движения",
		Category:      "outdoor",
		PriceCNY:      15,
		MinOrder:      100,
		SalesVolume:   42000,
		SalesTrend:    25,
		Rating:        4.4,
		SupplierName:  "Jiangmen SolarBright Co.",
		SupplierYears: 12,
		WBKeyword:     "садовый светильник",
		WBEstPrice:    800,
	},
	{
		SourceURL:     "https://detail.1688.com/offer/demo-wireless-charger-011.html",
		TitleCN:       "无线充电器 桌面 快充 适用苹果安卓 折叠",
		TitleRU:       "Беспроводная зарядка настольная, быстрая, для iPhone/Android, складная",
		Category:      "phone_accessories",
		PriceCNY:      18,
		MinOrder:      50,
		SalesVolume:   31000,
		SalesTrend:    20,
		Rating:        4.6,
		SupplierName:  "Shenzhen ChargePro Technology",
		SupplierYears: 7,
		WBKeyword:     "беспроводная зарядка",
		WBEstPrice:    1200,
	},
	{
		SourceURL:     "https://detail.1688.com/offer/demo-neck-fan-012.html",
		TitleCN:       "颈挂式风扇 便携 USB充电 免手持 夏季爆款",
		TitleRU:       "Шейный вентилятор портативный, USB-зарядка, hands-free, летний хит",
		Category:      "gadgets",
		PriceCNY:      19.5,
		MinOrder:      50,
		SalesVolume:   55000,
		SalesTrend:    180,
		Rating:        4.3,
		SupplierName:  "Zhongshan CoolBreeze Ltd.",
		SupplierYears: 4,
		WBKeyword:     "вентилятор шейный",
		WBEstPrice:    1200,
	},
}
