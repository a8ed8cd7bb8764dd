package llm

import "strings"

const fence = "```"

// Sanitize 去掉模型回复外层的 markdown 代码块并去除首尾空白。
// 只剥离包装，不修补 JSON：坏掉的 JSON 交给 Parser 拒绝
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, fence) {
		return s
	}
	nl := strings.IndexByte(s, '\n')
	if nl < 0 {
		return s
	}
	// 开头一行只允许 ``` 加可选的语言标记，如 ```json
	if !isFenceTag(strings.TrimSpace(s[len(fence):nl])) {
		return s
	}
	body := s[nl+1:]
	// 第一条独占一行的 ``` 即闭合围栏，之后的内容（客套话、多余围栏）一并丢弃
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == fence {
			return strings.TrimSpace(strings.Join(lines[:i], "\n"))
		}
	}
	// 闭合围栏紧跟在最后一行内容之后，如 {...}```
	body = strings.TrimSpace(body)
	return strings.TrimSpace(strings.TrimSuffix(body, fence))
}

func isFenceTag(tag string) bool {
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '+', r == '.':
		default:
			return false
		}
	}
	return true
}
