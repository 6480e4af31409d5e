package httpclient

// Validator inspects a decoded JSON payload and reports whether it looks
// like a well-formed response, before it is handed to a Transform.
type Validator func(payload any) bool

// HasFields reports whether payload is a JSON object containing every
// named key.
func HasFields(fields ...string) Validator {
	return func(payload any) bool {
		m, ok := payload.(map[string]any)
		if !ok {
			return false
		}
		for _, f := range fields {
			if _, present := m[f]; !present {
				return false
			}
		}
		return true
	}
}

// IsArray reports whether payload decoded to a JSON array.
func IsArray() Validator {
	return func(payload any) bool {
		_, ok := payload.([]any)
		return ok
	}
}

// All composes validators, requiring every one to pass.
func All(validators ...Validator) Validator {
	return func(payload any) bool {
		for _, v := range validators {
			if !v(payload) {
				return false
			}
		}
		return true
	}
}
