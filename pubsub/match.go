package pubsub

// Match reports whether a channel name matches a Redis glob pattern, the
// way the server decides which PSUBSCRIBE patterns a PUBLISH is delivered
// to. It supports `*`, `?`, `[abc]`, `[^abc]`, `[a-z]` and `\` escapes.
//
// This is partly based on Redis' own matching from:
// https://github.com/redis/redis/blob/unstable/src/util.c
func Match(pattern, channel []byte) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 1 && pattern[1] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			// Try to match the rest of the pattern against every
			// remaining suffix of the channel.
			for end := 0; end <= len(channel); end++ {
				if Match(pattern[1:], channel[end:]) {
					return true
				}
			}
			return false

		case '?':
			if len(channel) == 0 {
				return false
			}
			channel = channel[1:]
			pattern = pattern[1:]

		case '[':
			if len(channel) == 0 {
				return false
			}
			rest, ok := matchClass(pattern[1:], channel[0])
			if !ok {
				return false
			}
			channel = channel[1:]
			pattern = rest

		case '\\':
			if len(pattern) >= 2 {
				pattern = pattern[1:]
			}
			fallthrough

		default:
			if len(channel) == 0 || pattern[0] != channel[0] {
				return false
			}
			channel = channel[1:]
			pattern = pattern[1:]
		}
	}

	return len(channel) == 0
}

// matchClass matches c against the bracket expression starting just after
// the `[`. It returns the pattern following the closing `]`.
func matchClass(pattern []byte, c byte) (rest []byte, ok bool) {
	not := len(pattern) > 0 && pattern[0] == '^'
	if not {
		pattern = pattern[1:]
	}

	matched := false
	for len(pattern) > 0 && pattern[0] != ']' {
		switch {
		case pattern[0] == '\\' && len(pattern) >= 2:
			if pattern[1] == c {
				matched = true
			}
			pattern = pattern[2:]
		case len(pattern) >= 3 && pattern[1] == '-' && pattern[2] != ']':
			lo, hi := pattern[0], pattern[2]
			if lo > hi {
				lo, hi = hi, lo
			}
			if c >= lo && c <= hi {
				matched = true
			}
			pattern = pattern[3:]
		default:
			if pattern[0] == c {
				matched = true
			}
			pattern = pattern[1:]
		}
	}

	// Like Redis, an unterminated class is treated as if it were closed at
	// the end of the pattern.
	if len(pattern) > 0 {
		pattern = pattern[1:]
	}

	return pattern, matched != not
}
