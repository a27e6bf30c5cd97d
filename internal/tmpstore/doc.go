// Package tmpstore управляет временными файлами загрузок:
//   - Dir — общий на процесс временный каталог с уникальными именами файлов без глобальной блокировки;
//   - SinkFile — запись одной файловой части во временный файл;
//   - Scope — владение файлами в рамках запроса: всё, что не передано явно, удаляется по завершении;
//   - SweepOnce/StartGC — уборка файлов, переживших свой запрос (крэш, забытый Transfer).
package tmpstore
