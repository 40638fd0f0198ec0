package ledger

// Authorizer decide quem pode liquidar apostas e aprovar transações
type Authorizer interface {
	IsAdmin(id int64) bool
}

// Admins é um Authorizer a partir de uma lista fixa de ids do Telegram
type Admins []int64

func (a Admins) IsAdmin(id int64) bool {
	for _, x := range a {
		if x == id {
			return true
		}
	}
	return false
}
