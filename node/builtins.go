package node

// Builtins returns the descriptors of every built-in node kind, in the
// order they are registered at process start.
func Builtins() []Descriptor {
	return []Descriptor{
		InputDescriptor(),
		OutputDescriptor(),
		LiteralDescriptor(),
		EchoDescriptor(),
		ConcatDescriptor(),
		SwitchDescriptor(),
		ScriptDescriptor(),
		HttpRequestDescriptor(),
	}
}
