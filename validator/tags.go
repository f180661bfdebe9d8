package validator

const (
	Guard       = "guard"
	TokenStatus = "token_status"
	NotBlank    = "not_blank"
)
