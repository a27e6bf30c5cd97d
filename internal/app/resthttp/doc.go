// Package resthttp реализует REST API демо-каталога поверх конвейера приёма
// multipart-загрузок. Основные эндпоинты:
//   - POST /products — принимает форму (title, price, photo), сохраняет карточку и фото.
//   - GET /products/{id} — отдаёт карточку в JSON.
//   - GET /uploads/* — раздаёт сохранённые фото из upload_dir.
//   - POST /admin/gc — вручную запускает уборку временного каталога.
//   - GET /health — отдаёт статистику временного каталога для health-check'ов.
//   - GET /metrics — метрики Prometheus.
package resthttp
