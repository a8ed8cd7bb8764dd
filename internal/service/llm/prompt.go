package llm

import (
	"strconv"
	"strings"

	"desk-agent/internal/model"
)

// Vocabulary 固定动作词表，每种动作一个示例。
// 与 model.ActionSchemaVersion 一起版本化：改动这里必须同步修改 Parser 的校验规则
const Vocabulary = `Available action kinds (schema v` + model.ActionSchemaVersion + `):
- "speak": {"kind": "speak", "text": "Text to say out loud"}
- "move_mouse": {"kind": "move_mouse", "x": 100, "y": 200, "duration": 0.5}
- "click": {"kind": "click"}
- "double_click": {"kind": "double_click"}
- "type_text": {"kind": "type_text", "text": "Text to type", "interval": 0.05}
- "hotkey": {"kind": "hotkey", "keys": ["ctrl", "c"]}
- "open_app": {"kind": "open_app", "name": "chrome"}
- "delay": {"kind": "delay", "seconds": 1.5}`

const preamble = `You are a voice assistant that controls a computer. Analyse the user's command,
take the open windows into account and produce the list of actions to perform on the PC.
Speak to the user in the same language the user speaks.`

const workedExamples = `Examples:
1. The user says "Open the browser":
{"actions": [{"kind": "speak", "text": "Opening the browser."}, {"kind": "open_app", "name": "chrome"}]}
2. The user says "Hello":
{"actions": [{"kind": "speak", "text": "Hello, how can I help you?"}]}`

// OutputInstruction prompt 的结尾指令
const OutputInstruction = `Reply with a single JSON object of the shape {"actions": [...]} and nothing else: no prose, no markdown, no code fences.`

// BuildPrompt 根据用户指令和窗口上下文生成 prompt。
// 纯函数：相同输入必然得到相同输出，不含时间、随机数等
func BuildPrompt(req model.ActionRequest) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n")
	b.WriteString(Vocabulary)
	b.WriteString("\n\nCurrent context:\n")

	b.WriteString("- Active window: ")
	if req.Context.HasActiveWindow() {
		b.WriteString(strconv.Quote(*req.Context.ActiveWindow))
	} else {
		b.WriteString("none")
	}
	b.WriteString("\n- Open windows: ")
	if len(req.Context.AllWindows) == 0 {
		b.WriteString("none")
	} else {
		for i, w := range req.Context.AllWindows {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(w))
		}
	}

	// 指令做转义，避免用户文本里的引号、换行破坏 prompt 结构
	b.WriteString("\n\nUser command: ")
	b.WriteString(strconv.Quote(req.Utterance))
	b.WriteString("\n\n")
	b.WriteString(workedExamples)
	b.WriteString("\n\n")
	b.WriteString(OutputInstruction)
	return b.String()
}
