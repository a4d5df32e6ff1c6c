package http

var (
	Failed                        = failed(500, "Request failed")
	RequestParameterParsingFailed = failed(5001, "Request parameter parsing failed")
	InternalError                 = failed(5000, "Internal error, please contact the administrator")
	ConfigurationError            = failed(5002, "Server misconfiguration")

	// Unauthorized 401 session
	Unauthorized = failed(4401, "Unauthorized")
	InvalidToken = failed(4405, "Invalid token")
	TokenBeEmpty = failed(4406, "Token cannot be empty")
	TokenExpired = failed(4407, "Token is expired")

	// BadRequest 400
	BadRequest = failed(4000, "Bad request")

	// Forbidden 403
	Forbidden    = failed(4030, "Forbidden")
	AccessDenied = failed(4032, "Not an active member of this organization")

	TooManyRequests = failed(4429, "Too many requests, retry later")

	UserNotExist                = failed(4041, "User does not exist")
	UserAlreadyExist            = failed(4042, "User already exists")
	UserIncorrectPassword       = failed(4043, "Incorrect email or password")
	EmailAndPasswordAreRequired = failed(4045, "Email and password are required")

	// organization context
	NoOrgSelected     = failed(4420, "No organization selected")
	OrgNotExist       = failed(4421, "Organization does not exist")
	OrgNameIsRequired = failed(4422, "Organization name is required")
	LastOwnerLocked   = failed(4423, "An organization must keep at least one owner")
	MemberNotExist    = failed(4424, "Member does not exist")

	// invites
	InviteInvalid = failed(4440, "Invite is invalid or revoked")
)

var (
	Success = success(200, "Request Success")
)

func failed(code int, msg string) *Response {
	return &Response{
		Code:   code,
		Msg:    msg,
		Detail: nil,
	}
}

func success(code int, msg string) *Response {
	return &Response{
		Code:   code,
		Msg:    msg,
		Detail: nil,
	}
}
