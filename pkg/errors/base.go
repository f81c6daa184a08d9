package errors

import (
	"net/http"
)

// ============================================================================
// Success
// ============================================================================

// OK represents a successful operation.
var OK = Register(&Errno{
	Code:      0,
	HTTP:      http.StatusOK,
	MessageEN: "Success",
	MessageZH: "成功",
})

// ============================================================================
// Request Errors (Category: 01)
// ============================================================================

var (
	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryRequest, 0),
		HTTP:      http.StatusBadRequest,
		MessageEN: "Bad request",
		MessageZH: "请求错误",
	})

	// ErrInvalidParam indicates an invalid parameter.
	ErrInvalidParam = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryRequest, 1),
		HTTP:      http.StatusBadRequest,
		MessageEN: "Invalid parameter",
		MessageZH: "参数无效",
	})

	// ErrEmptyInput indicates empty or whitespace-only input text.
	ErrEmptyInput = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryRequest, 2),
		HTTP:      http.StatusBadRequest,
		MessageEN: "Input text is empty",
		MessageZH: "输入文本为空",
	})
)

// ============================================================================
// Internal Errors (Category: 07)
// ============================================================================

var (
	// ErrInternal indicates an internal server error.
	ErrInternal = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryInternal, 0),
		HTTP:      http.StatusInternalServerError,
		MessageEN: "Internal server error",
		MessageZH: "服务器内部错误",
	})
)

// ============================================================================
// Advisor Serving Errors (Service: 20)
// ============================================================================

var (
	// ErrEmptyQuestion indicates the ask request carried no question text.
	ErrEmptyQuestion = Register(&Errno{
		Code:      MakeCode(ServiceAdvisor, CategoryRequest, 0),
		HTTP:      http.StatusBadRequest,
		MessageEN: "Question is required",
		MessageZH: "问题不能为空",
	})

	// ErrProvider indicates an embedding or completion provider failure.
	// The message is intentionally generic; the underlying cause is logged,
	// never returned to the caller.
	ErrProvider = Register(&Errno{
		Code:      MakeCode(ServiceAdvisor, CategoryProvider, 0),
		HTTP:      http.StatusInternalServerError,
		MessageEN: "Unable to reach the language model service. Please try again later.",
		MessageZH: "无法连接语言模型服务，请稍后重试。",
	})

	// ErrQueryTimeout indicates the ask request exceeded its deadline.
	ErrQueryTimeout = Register(&Errno{
		Code:      MakeCode(ServiceAdvisor, CategoryTimeout, 0),
		HTTP:      http.StatusRequestTimeout,
		MessageEN: "Query timeout: the request took too long to process. Please try again or simplify your question.",
		MessageZH: "查询超时，请重试或简化问题。",
	})

	// ErrUnknownSymbol indicates a trade request for a symbol without a quote.
	ErrUnknownSymbol = Register(&Errno{
		Code:      MakeCode(ServiceAdvisor, CategoryRequest, 1),
		HTTP:      http.StatusBadRequest,
		MessageEN: "Unknown symbol",
		MessageZH: "未知股票代码",
	})

	// ErrInvalidQuantity indicates a non-positive trade quantity.
	ErrInvalidQuantity = Register(&Errno{
		Code:      MakeCode(ServiceAdvisor, CategoryRequest, 2),
		HTTP:      http.StatusBadRequest,
		MessageEN: "Quantity must be positive",
		MessageZH: "数量必须为正数",
	})

	// ErrInsufficientFunds indicates the cash balance cannot cover a buy.
	ErrInsufficientFunds = Register(&Errno{
		Code:      MakeCode(ServiceAdvisor, CategoryRequest, 3),
		HTTP:      http.StatusBadRequest,
		MessageEN: "Insufficient funds",
		MessageZH: "资金不足",
	})

	// ErrInsufficientHoldings indicates a sell larger than the position.
	ErrInsufficientHoldings = Register(&Errno{
		Code:      MakeCode(ServiceAdvisor, CategoryRequest, 4),
		HTTP:      http.StatusBadRequest,
		MessageEN: "Insufficient holdings",
		MessageZH: "持仓不足",
	})
)

// ============================================================================
// Store / Indexing Errors (Service: 21, Category: Store)
// ============================================================================

var (
	// ErrStoreCorrupt indicates the persisted store artifact is unreadable or
	// malformed. Fatal at serving startup.
	ErrStoreCorrupt = Register(&Errno{
		Code:      MakeCode(ServiceIndexer, CategoryStore, 0),
		HTTP:      http.StatusInternalServerError,
		MessageEN: "Knowledge store artifact is corrupt",
		MessageZH: "知识库存储文件已损坏",
	})

	// ErrDimensionMismatch indicates an embedding of the wrong length reaching
	// the store. Excluded and warned, never propagated to callers.
	ErrDimensionMismatch = Register(&Errno{
		Code:      MakeCode(ServiceIndexer, CategoryStore, 1),
		HTTP:      http.StatusInternalServerError,
		MessageEN: "Embedding dimension mismatch",
		MessageZH: "向量维度不匹配",
	})

	// ErrUnsupportedFormat indicates a document format without an extractor.
	ErrUnsupportedFormat = Register(&Errno{
		Code:      MakeCode(ServiceIndexer, CategoryResource, 0),
		HTTP:      http.StatusUnsupportedMediaType,
		MessageEN: "Unsupported document format",
		MessageZH: "不支持的文档格式",
	})
)
