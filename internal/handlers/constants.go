package handlers

const (
	AccessCookieName  = "nihongo_access"
	RefreshCookieName = "nihongo_refresh"
	LearnerCookieName = "nihongo_learner"

	ErrInvalidFormData     = "Dữ liệu gửi lên không hợp lệ."
	ErrUnauthorized        = "Bạn cần đăng nhập để tiếp tục."
	ErrInternalServerError = "Có lỗi xảy ra. Vui lòng thử lại."
	ErrInvalidCSRF         = "Phiên làm việc đã hết hạn. Vui lòng tải lại trang."
	ErrTooManyRequests     = "Bạn thao tác quá nhanh. Vui lòng thử lại sau ít phút."
	ErrSessionGone         = "Phiên luyện tập đã hết hạn. Vui lòng tải lại bài học."
	ErrLessonNotFound      = "Không tìm thấy bài học."
	ErrOAuthUnavailable    = "Không thể đăng nhập bằng nhà cung cấp này."

	MsgLoginSuccess       = "Đăng nhập thành công!"
	MsgRegisterSuccess    = "Đăng ký thành công! Hãy kiểm tra email và đăng nhập nhé."
	MsgLogoutSuccess      = "Đã đăng xuất."
	MsgRefreshSuccess     = "Đã làm mới phiên đăng nhập."
	MsgInvalidCredentials = "Email hoặc mật khẩu không đúng."
	MsgEmailTaken         = "Email này đã được sử dụng."
	MsgSessionExpired     = "Phiên đăng nhập đã hết hạn. Vui lòng đăng nhập lại."
)
