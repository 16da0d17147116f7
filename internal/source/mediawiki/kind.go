package mediawiki

// Kind is the top-level "type" of a feed record.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindNull
	KindEdit
	KindNew
	KindLog
)

var kindNames = map[string]Kind{
	"edit": KindEdit,
	"new":  KindNew,
	"log":  KindLog,
}

func KindOf(tag string) Kind {
	if isNull(tag) {
		return KindNull
	}
	if k, ok := kindNames[tag]; ok {
		return k
	}
	return KindUnrecognized
}

// LogKind is the "log_type" of a log record.
type LogKind int

const (
	LogUnrecognized LogKind = iota
	LogNull
	LogApproval
	LogAvatar
	LogBlock
	LogDelete
	LogMove
	LogNewUsers
	LogPatrol
	LogProfile
	LogRights
	LogThanks
	LogUpload
	LogUserMerge
)

var logKindNames = map[string]LogKind{
	"approval":  LogApproval,
	"avatar":    LogAvatar,
	"block":     LogBlock,
	"delete":    LogDelete,
	"move":      LogMove,
	"newusers":  LogNewUsers,
	"patrol":    LogPatrol,
	"profile":   LogProfile,
	"rights":    LogRights,
	"thanks":    LogThanks,
	"upload":    LogUpload,
	"usermerge": LogUserMerge,
}

func LogKindOf(tag string) LogKind {
	if isNull(tag) {
		return LogNull
	}
	if k, ok := logKindNames[tag]; ok {
		return k
	}
	return LogUnrecognized
}

// ApprovalAction is the "log_action" of an approval record.
type ApprovalAction int

const (
	ApprovalUnrecognized ApprovalAction = iota
	ApprovalNull
	ApprovalApprove
	ApprovalUnapprove
)

func ApprovalActionOf(tag string) ApprovalAction {
	switch {
	case isNull(tag):
		return ApprovalNull
	case tag == "approve":
		return ApprovalApprove
	case tag == "unapprove":
		return ApprovalUnapprove
	default:
		return ApprovalUnrecognized
	}
}

// An absent tag decodes to "" and an explicit JSON null prints as "null"
// in the feed; both mean there is nothing to report.
func isNull(tag string) bool { return tag == "" || tag == "null" }
