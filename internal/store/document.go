package store

import "go-library-server/internal/domain"

// Document 整个库的持久化快照，对应磁盘上的一个 JSON 文件。
// 顶层四个集合，没有行级更新：改什么都要整篇读、内存改、整篇写回。
type Document struct {
	Users   []domain.User     `json:"users"`
	Books   []domain.Book     `json:"books"`
	Rentals []domain.Rental   `json:"rentals"`
	Logs    []domain.LogEntry `json:"logs"`
}

func (d *Document) UserByID(id string) *domain.User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

func (d *Document) UserByEmail(email string) *domain.User {
	for i := range d.Users {
		if d.Users[i].Email == email {
			return &d.Users[i]
		}
	}
	return nil
}

func (d *Document) UserByCardID(cardID string) *domain.User {
	for i := range d.Users {
		if d.Users[i].LibraryCardID == cardID {
			return &d.Users[i]
		}
	}
	return nil
}

func (d *Document) BookByID(id string) *domain.Book {
	for i := range d.Books {
		if d.Books[i].ID == id {
			return &d.Books[i]
		}
	}
	return nil
}

func (d *Document) RentalByID(id string) *domain.Rental {
	for i := range d.Rentals {
		if d.Rentals[i].ID == id {
			return &d.Rentals[i]
		}
	}
	return nil
}
