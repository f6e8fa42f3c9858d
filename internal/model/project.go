package model

type Project struct {
	ID           string
	Name         string
	ClientName   string
	ClientID     *string
	Tier         *string
	MonthlyValue *int
}
