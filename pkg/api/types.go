package api

// User is the public view of an account. Password hashes never leave the server.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// GroupRef identifies a group inside other resources.
type GroupRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	CreatedBy   User   `json:"createdBy"`
	Members     []User `json:"members"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

type Split struct {
	User       User    `json:"user"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// SplitInput is a caller-provided share for custom splits.
type SplitInput struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
}

type Expense struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Amount      float64  `json:"amount"`
	PaidBy      User     `json:"paidBy"`
	Group       GroupRef `json:"group"`
	SplitType   string   `json:"splitType"`
	Splits      []Split  `json:"splits"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Date        int64    `json:"date"`
	IsSettled   bool     `json:"isSettled"`
	CreatedAt   int64    `json:"createdAt"`
}

type Settlement struct {
	ID          string   `json:"id"`
	Group       GroupRef `json:"group"`
	FromUser    User     `json:"fromUser"`
	ToUser      User     `json:"toUser"`
	Amount      float64  `json:"amount"`
	Status      string   `json:"status"`
	PaymentID   string   `json:"paymentId,omitempty"`
	PaymentDate int64    `json:"paymentDate,omitempty"`
	ExpenseIDs  []string `json:"expenseIds"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`
}

// Balance is one user's position in a group, rounded to cents.
type Balance struct {
	UserID     string  `json:"userId"`
	User       *User   `json:"user"`
	TotalPaid  float64 `json:"totalPaid"`
	TotalOwed  float64 `json:"totalOwed"`
	NetBalance float64 `json:"netBalance"`
}

// Suggestion is a proposed payment that moves both parties towards zero.
type Suggestion struct {
	FromUser     string  `json:"fromUser"`
	FromUserName string  `json:"fromUserName"`
	ToUser       string  `json:"toUser"`
	ToUserName   string  `json:"toUserName"`
	Amount       float64 `json:"amount"`
}
