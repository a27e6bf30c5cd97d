package tmpstore

import "net/http"

// Middleware открывает Scope на каждый запрос и гарантированно очищает его при выходе
// из обработчика: успех, ошибка, паника или обрыв клиента.
func (d *Dir) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := d.NewScope()
		defer scope.Cleanup()

		next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
	})
}
