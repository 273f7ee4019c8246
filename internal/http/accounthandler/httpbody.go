package accounthandler

type CredentialsBody struct {
	ID       string `json:"id"       form:"id"       binding:"required,min=3,max=64,alphanum" example:"alice"`
	Password string `json:"password" form:"password" binding:"required,min=8,max=72"          example:"s3cret-pass"`
} // @name CredentialsRequest

type RegisteredResponse struct {
	Subject string `json:"sub"`
} // @name RegisteredResponse

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse
