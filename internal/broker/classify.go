package broker

// ToolClass identifies which handling path a tool call takes, per
// spec.md §4.7's classification table (grounded on original_source's
// ui/tools/core.rs::run_tool name match and the teacher's
// internal/tools.GetToolKind, generalized with the two human-in-the-loop
// classes original_source splits into separate services).
type ToolClass int

const (
	ClassWebSearch ToolClass = iota
	ClassReadFile
	ClassReadCode
	ClassListDir
	ClassModifyFile
	ClassCodeExec
	ClassUnknown
)

// Classify maps a tool call's name to its handling class.
func Classify(name string) ToolClass {
	switch name {
	case "web_search":
		return ClassWebSearch
	case "read_file":
		return ClassReadFile
	case "read_code":
		return ClassReadCode
	case "list_dir":
		return ClassListDir
	case "modify_file", "edit_file", "write_file":
		return ClassModifyFile
	case "code_exec", "shell":
		return ClassCodeExec
	default:
		return ClassUnknown
	}
}

// UnknownToolMessage is the exact tool-result text for an unrecognized
// tool name (spec.md §4.7 table, last row; original_source's
// ui/tools/core.rs returns "未知工具：{name}").
func UnknownToolMessage(name string) string {
	return "未知工具：" + name
}
