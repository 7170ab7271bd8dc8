package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type ShiftAssignedMailData struct {
	FullName string `json:"fullName"`
	Date     string `json:"date"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type ShiftCancelledMailData struct {
	FullName string `json:"fullName"`
	Date     string `json:"date"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}
