package input

// defaultMessages apply to every form; form and per-call messages override them.
var defaultMessages = Messages{
	"required":     "This field is required",
	"in":           "Please make a selection",
	"email":        "Please enter a valid email address",
	"email.unique": "This email address is already registered",
}

// DefaultMessages returns a copy of the built-in message table.
func DefaultMessages() Messages {
	return mergeMessages(defaultMessages)
}

func mergeRules(layers ...Rules) Rules {
	out := Rules{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

func mergeMessages(layers ...Messages) Messages {
	out := Messages{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}
