package console

// BannerKind tells the presentation layer how to render a Banner.
type BannerKind int

const (
	BannerNone BannerKind = iota
	BannerInfo
	BannerError
)

// Banner is the single message a workflow shows. It stays until the next
// operation finishes and replaces it.
type Banner struct {
	Kind BannerKind
	Text string
}

func (b Banner) IsError() bool {
	return b.Kind == BannerError
}

func info(text string) Banner {
	return Banner{Kind: BannerInfo, Text: text}
}

func errorBanner(err error) Banner {
	return Banner{Kind: BannerError, Text: err.Error()}
}
