// Package ingest разбирает multipart/form-data тело запроса потоком:
//
//	тело запроса -> ChunkReader (порции, таймаут на порцию)
//	             -> Limiter (общий лимит тела)
//	             -> Demux (границы частей; файлы во временный каталог, поля в память)
//	             -> models.FieldMap
//
// Временные файлы регистрируются в tmpstore.Scope запроса ещё до первой записи,
// поэтому любая ошибка разбора оставляет уборку области владения.
package ingest
