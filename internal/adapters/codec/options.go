package codec

// Option configures a Codec.
type Option func(*Codec)

// WithDelimiter sets the CSV field delimiter.
func WithDelimiter(r rune) Option {
	return func(c *Codec) {
		if r != 0 {
			c.delimiter = r
		}
	}
}

// WithDecimalComma toggles parsing "12,5" as 12.5.
func WithDecimalComma(enabled bool) Option {
	return func(c *Codec) {
		c.decimalComma = enabled
	}
}

// WithExtraHeaderLines sets how many lines after the header row are skipped.
func WithExtraHeaderLines(n int) Option {
	return func(c *Codec) {
		if n >= 0 {
			c.extraHeaderLines = n
		}
	}
}
