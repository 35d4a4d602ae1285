package copygen

import "github.com/ternarybob/autovis/internal/models"

// scriptTemplates holds the narrated-script variants per age bucket.
// Placeholders: {title} {gender} {age_label} {style} {price_text} {year}
var scriptTemplates = map[models.AgeKey][]string{
	models.AgeNewborn: {
		"Ơi các mẹ ơi! {title} siêu cute cho bé sơ sinh nhà mình đây! " +
			"Chất vải 100% cotton mềm mại, an toàn cho làn da nhạy cảm của bé. " +
			"{price_text}Đặt ngay hôm nay, giao hàng toàn quốc nhé các mẹ!",
	},
	models.AgeToddler: {
		"Các mẹ ơi xem {title} này xinh không! " +
			"Phù hợp cho {gender} {age_label}, chất vải thoáng mát dễ chịu. " +
			"{price_text}Mẹ nào đang tìm đồ cho bé thì đừng bỏ lỡ nhé!",
		"Ồ trời ơi cute quá đi! {title} – hot trend {year} đây các mẹ! " +
			"Bé mặc vào là đẹp ngay, chụp ảnh cực kỳ photogenic. " +
			"{price_text}Bình luận GIÁ để mình báo ngay!",
	},
	models.AgePreschool: {
		"Mẹ bỉm đang tìm đồ cho bé {age_label}? {title} là lựa chọn hoàn hảo! " +
			"Thiết kế {style}, bé mặc vào tự tin hơn hẳn. " +
			"{price_text}Giao hàng nhanh, đổi trả dễ dàng!",
	},
	models.AgeSchool: {
		"Thời trang học đường cực chất! {title} cho {gender} {age_label}. " +
			"Vải bền đẹp, co giãn tốt, bé mặc cả ngày vẫn thoải mái. " +
			"{price_text}Đặt ngay kẻo hết size nhé!",
	},
}
