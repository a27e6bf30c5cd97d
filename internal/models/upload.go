package models

// UploadHandle описывает файловую часть формы, сохранённую во временный файл.
// Файл по StoragePath принадлежит запросу, пока владение не передано явно.
type UploadHandle struct {
	ContentType      string `json:"content_type"`
	OriginalFilename string `json:"original_filename"`
	StoragePath      string `json:"storage_path"`
	Size             int64  `json:"size"`
}
