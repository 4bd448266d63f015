package domain

// Book 的 availableCopies 是派生计数：
// availableCopies == totalCopies - 该书处于 Borrowed 状态的租借数。
// 只允许 ledger 在同一次落盘里和租借记录一起改，别的地方只读。
type Book struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	TotalCopies     int    `json:"totalCopies"`
	AvailableCopies int    `json:"availableCopies"` // 永不为负
}
