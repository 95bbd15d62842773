package wb

import "fmt"

// basketUpper maps the listing volume (id / 100000) to its CDN basket.
// Volumes above the last bound land in the newest basket.
var basketUpper = []int64{143, 287, 431, 719, 1007, 1061, 1115, 1169, 1313, 1601, 1655, 1919, 2045, 2189, 2405, 2621, 2837}

// imageURL returns the first photo of a listing on the WB CDN.
func imageURL(id int64) string {
	vol := id / 100000
	part := id / 1000
	basket := len(basketUpper) + 1
	for i, upper := range basketUpper {
		if vol <= upper {
			basket = i + 1
			break
		}
	}
	return fmt.Sprintf("https://basket-%02d.wbbasket.ru/vol%d/part%d/%d/images/big/1.webp", basket, vol, part, id)
}
