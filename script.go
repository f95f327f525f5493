package quickjsruntime

// Script pairs JavaScript source with the path it is reported under in
// exception stacks and module resolution.
type Script struct {
	path string
	code string
}

// NewScript creates a Script. The path does not need to exist on disk; it is
// only used for diagnostics and as the module specifier.
func NewScript(path, code string) Script {
	return Script{path: path, code: code}
}

// Path returns the script's reported file path.
func (s Script) Path() string { return s.path }

// Code returns the script's source text.
func (s Script) Code() string { return s.code }
