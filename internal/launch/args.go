package launch

import "strings"

// ArgSeparator ends flag parsing; every token after it is positional.
const ArgSeparator = "--"

// CollectPositional returns the positional tokens of args. Tokens starting
// with "-" are treated as host flags and skipped until ArgSeparator has been
// seen.
func CollectPositional(args []string) []string {
	var positional []string
	afterSeparator := false
	for _, arg := range args {
		if afterSeparator {
			positional = append(positional, arg)
			continue
		}
		if arg == ArgSeparator {
			afterSeparator = true
			continue
		}
		if strings.HasPrefix(arg, "-") {
			continue
		}
		positional = append(positional, arg)
	}
	return positional
}

// SinglePositional returns the one positional argument in args. The boolean
// is false when there is none.
func SinglePositional(args []string) (string, bool, error) {
	positional := CollectPositional(args)
	switch len(positional) {
	case 0:
		return "", false, nil
	case 1:
		return positional[0], true, nil
	default:
		return "", false, &Error{Kind: KindTooManyArguments, Args: positional}
	}
}
