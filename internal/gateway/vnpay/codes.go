package vnpay

import "fmt"

// CodeGroup partitions the VNPay code table by API family.
type CodeGroup string

const (
	GroupTransaction CodeGroup = "transaction"
	GroupQuery       CodeGroup = "query"
	GroupRefund      CodeGroup = "refund"
)

// CodeSuccess is the sentinel VNPay uses on both vnp_ResponseCode and
// vnp_TransactionStatus. Callers must compare against it; absence of a code
// does not mean success.
const CodeSuccess = "00"

var transactionCodes = map[string]string{
	"00": "Giao dịch thành công",
	"07": "Trừ tiền thành công, giao dịch bị nghi ngờ gian lận",
	"09": "Thẻ/Tài khoản chưa đăng ký dịch vụ InternetBanking tại ngân hàng",
	"10": "Xác thực thông tin thẻ/tài khoản không đúng quá 3 lần",
	"11": "Đã hết hạn chờ thanh toán",
	"12": "Thẻ/Tài khoản bị khóa",
	"13": "Nhập sai mật khẩu xác thực giao dịch (OTP)",
	"24": "Khách hàng hủy giao dịch",
	"51": "Tài khoản không đủ số dư để thực hiện giao dịch",
	"65": "Tài khoản đã vượt quá hạn mức giao dịch trong ngày",
	"75": "Ngân hàng thanh toán đang bảo trì",
	"79": "Nhập sai mật khẩu thanh toán quá số lần quy định",
	"99": "Lỗi khác",
}

var queryCodes = map[string]string{
	"00": "Truy vấn thành công",
	"02": "Mã merchant không hợp lệ",
	"03": "Dữ liệu gửi sang không đúng định dạng",
	"91": "Không tìm thấy giao dịch yêu cầu",
	"94": "Yêu cầu trùng lặp trong thời gian giới hạn",
	"97": "Chữ ký không hợp lệ",
	"99": "Lỗi khác",
}

var refundCodes = map[string]string{
	"00": "Hoàn trả thành công",
	"02": "Mã merchant không hợp lệ",
	"03": "Dữ liệu gửi sang không đúng định dạng",
	"91": "Không tìm thấy giao dịch yêu cầu hoàn trả",
	"93": "Số tiền hoàn trả không hợp lệ",
	"94": "Yêu cầu hoàn trả trùng lặp",
	"95": "Giao dịch hoàn trả bị từ chối",
	"97": "Chữ ký không hợp lệ",
	"99": "Lỗi khác",
}

var codeGroups = map[CodeGroup]map[string]string{
	GroupTransaction: transactionCodes,
	GroupQuery:       queryCodes,
	GroupRefund:      refundCodes,
}

// LookupReason maps a transaction response code to its reason. Unknown codes
// get a templated message instead of an error; the function is total.
func LookupReason(code string) (string, bool) {
	return LookupReasonGroup(GroupTransaction, code)
}

// LookupReasonGroup is LookupReason for a specific code group.
func LookupReasonGroup(group CodeGroup, code string) (string, bool) {
	table, ok := codeGroups[group]
	if !ok {
		return unknownReason(code), false
	}
	message, known := table[code]
	if !known {
		return unknownReason(code), false
	}
	return message, true
}

func unknownReason(code string) string {
	return fmt.Sprintf("Lỗi không xác định (mã %s)", code)
}
