package console

import "research-admin/internal/shared/model"

// OpenLinks 勾选行需要打开的链接：按行顺序，主链接在前，截图在后
func OpenLinks(rows []model.Research, sel *Selection) []string {
	var urls []string
	for i := range rows {
		r := &rows[i]
		if !sel.Has(r.ID) {
			continue
		}
		if link := r.Link(); link != "" {
			urls = append(urls, link)
		}
		urls = append(urls, r.Screenshots...)
	}
	return urls
}
