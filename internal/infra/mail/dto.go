package mail

type NewLeadEmailData struct {
	OwnerName        string
	FunnelTitle      string
	LeadName         string
	Phone            string
	Email            string
	PreferredContact string
	DashboardURL     string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	dialer dialer
}
