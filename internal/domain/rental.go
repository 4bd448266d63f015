package domain

// 租借状态只有两个，且只能 Borrowed -> Returned 单向走一次
const (
	RentalBorrowed = "Borrowed"
	RentalReturned = "Returned"
)

// Rental 一次借阅。rentalDate 是日期（YYYY-MM-DD）；
// returnDate 创建时是应还日期，归还时被覆盖成实际归还时间戳（RFC3339）。
type Rental struct {
	ID         string `json:"id"`
	BookID     string `json:"bookId"`
	UserID     string `json:"userId"`
	RentalDate string `json:"rentalDate"`
	ReturnDate string `json:"returnDate"`
	Status     string `json:"status"`
}
