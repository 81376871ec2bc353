package momo

import "fmt"

// The MoMo result-code space is partitioned by numeric range rather than by
// API family: low codes are system and validation errors, the 40s are
// duplicate/conflict errors, the 1000s are transaction states and the 108x
// codes are refund states.
var systemCodes = map[string]string{
	"10": "Hệ thống đang được bảo trì",
	"11": "Truy cập bị từ chối",
	"12": "Phiên bản API không được hỗ trợ",
	"13": "Xác thực doanh nghiệp thất bại",
	"20": "Yêu cầu sai định dạng",
	"21": "Số tiền giao dịch không hợp lệ",
	"22": "Số tiền giao dịch nằm ngoài giới hạn cho phép",
	"99": "Lỗi không xác định",
}

var conflictCodes = map[string]string{
	"40": "RequestId bị trùng",
	"41": "OrderId bị trùng",
	"42": "OrderId không hợp lệ hoặc không được tìm thấy",
	"43": "Giao dịch xung đột với một giao dịch đang được xử lý",
	"45": "ItemId bị trùng",
}

var transactionCodes = map[string]string{
	"0":    "Giao dịch thành công",
	"00":   "Giao dịch thành công",
	"1000": "Giao dịch đã được khởi tạo, chờ người dùng xác nhận",
	"1001": "Tài khoản người dùng không đủ số dư",
	"1002": "Giao dịch bị từ chối bởi nhà phát hành tài khoản thanh toán",
	"1003": "Giao dịch đã bị hủy",
	"1004": "Số tiền vượt quá hạn mức thanh toán của người dùng",
	"1005": "URL hoặc QR code đã hết hạn",
	"1006": "Giao dịch bị từ chối bởi người dùng",
	"1007": "Tài khoản người dùng đang bị tạm khóa",
	"1017": "Giao dịch bị hủy bởi đối tác",
	"1026": "Giao dịch bị hạn chế theo thể lệ chương trình khuyến mãi",
	"4001": "Tài khoản người dùng đang bị hạn chế",
	"4100": "Người dùng đăng nhập không thành công",
	"7000": "Giao dịch đang được xử lý",
	"7002": "Giao dịch đang được xử lý bởi nhà cung cấp dịch vụ thanh toán",
	"9000": "Giao dịch đã được xác nhận thành công",
}

var refundCodes = map[string]string{
	"1080": "Giao dịch hoàn tiền đang được xử lý",
	"1081": "Giao dịch hoàn tiền bị từ chối",
}

var codeTables = []map[string]string{
	transactionCodes,
	systemCodes,
	conflictCodes,
	refundCodes,
}

// LookupReason maps a resultCode to its reason. Unknown codes get a
// templated message instead of an error; the function is total.
func LookupReason(code string) (string, bool) {
	for _, table := range codeTables {
		if message, ok := table[code]; ok {
			return message, true
		}
	}
	return fmt.Sprintf("Lỗi không xác định (mã %s)", code), false
}
