package models

// SelectionSession is the per-user interaction state of the slot picker,
// persisted between updates by the state repository. Data survives a JSON
// round trip through Redis, so the typed getters tolerate the decoded forms.
type SelectionSession struct {
	UserID      int64                  `json:"user_id"`
	CurrentStep string                 `json:"current_step"`
	Data        map[string]interface{} `json:"data"`
}

func (s *SelectionSession) GetString(key string) string {
	if s.Data == nil {
		return ""
	}
	val, ok := s.Data[key]
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func (s *SelectionSession) GetInt64(key string) int64 {
	if s.Data == nil {
		return 0
	}
	val, ok := s.Data[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	default:
		return 0
	}
}

func (s *SelectionSession) GetBool(key string) bool {
	if s.Data == nil {
		return false
	}
	val, ok := s.Data[key]
	if !ok {
		return false
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return false
}
