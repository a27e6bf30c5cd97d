// Package uploadproto описывает HTTP-протокол демо-каталога: пути и имена полей формы.
package uploadproto

const (
	ProductsPath      = "/products"
	ProductPathFormat = "%s/products/%s"
	UploadsPrefix     = "/uploads"
	HealthPath        = "/health"
	GCPath            = "/admin/gc"
)

// Поля multipart-формы товара.
const (
	FieldTitle = "title"
	FieldPrice = "price"
	FieldPhoto = "photo"
)
