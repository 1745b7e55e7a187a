package routes

type Tag string

const (
	TagGeneral  Tag = "General"
	TagOAuth    Tag = "OAuth"
	TagWebhooks Tag = "Webhooks"
)

func (t Tag) String() string { return string(t) }

func AllTags() []string {
	return []string{
		TagGeneral.String(),
		TagOAuth.String(),
		TagWebhooks.String(),
	}
}
