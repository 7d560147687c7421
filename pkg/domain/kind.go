package domain

// FieldType controls how a field is edited and validated.
type FieldType int

const (
	FieldText FieldType = iota
	FieldMultiline
	FieldSlug
	FieldEmail
	FieldNumber
	FieldBool
	FieldRelation // id of another record
	FieldMedia    // id of an uploaded file
)

// Field describes one editable attribute of a kind.
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
}

// Reference reports whether the field holds the id of another object.
func (f Field) Reference() bool {
	return f.Type == FieldRelation || f.Type == FieldMedia
}

// Kind describes one CMS-managed record type and how it is addressed over GraphQL.
type Kind struct {
	Slug       string // route segment, e.g. "posts"
	Name       string // display name
	Collection string // list query field, e.g. "posts"
	Singular   string // single query and mutation payload field, e.g. "post"
	Type       string // mutation suffix and input type prefix, e.g. "Post"
	Single     bool   // singleton type (one record, no list/create/delete)
	Columns    []string
	Search     string // field used for _contains filtering; "" disables search
	Fields     []Field
}

// Field returns the field with the given name.
func (k Kind) Field(name string) (Field, bool) {
	for _, f := range k.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Kinds lists every kind in dashboard order.
var Kinds = []Kind{
	{
		Slug: "posts", Name: "Posts", Collection: "posts", Singular: "post", Type: "Post",
		Columns: []string{"title", "slug", "published"},
		Search:  "title",
		Fields: []Field{
			{Name: "title", Label: "title", Type: FieldText, Required: true},
			{Name: "slug", Label: "slug", Type: FieldSlug, Required: true},
			{Name: "description", Label: "description", Type: FieldMultiline},
			{Name: "content", Label: "content", Type: FieldMultiline, Required: true},
			{Name: "category", Label: "category id", Type: FieldRelation},
			{Name: "cover", Label: "cover file id", Type: FieldMedia},
			{Name: "published", Label: "published", Type: FieldBool},
		},
	},
	{
		Slug: "categories", Name: "Categories", Collection: "categories", Singular: "category", Type: "Category",
		Columns: []string{"name", "slug"},
		Search:  "name",
		Fields: []Field{
			{Name: "name", Label: "name", Type: FieldText, Required: true},
			{Name: "slug", Label: "slug", Type: FieldSlug, Required: true},
		},
	},
	{
		Slug: "sub-categories", Name: "Sub-categories", Collection: "subCategories", Singular: "subCategory", Type: "SubCategory",
		Columns: []string{"name", "slug"},
		Search:  "name",
		Fields: []Field{
			{Name: "name", Label: "name", Type: FieldText, Required: true},
			{Name: "slug", Label: "slug", Type: FieldSlug, Required: true},
			{Name: "category", Label: "category id", Type: FieldRelation, Required: true},
		},
	},
	{
		Slug: "tags", Name: "Tags", Collection: "tags", Singular: "tag", Type: "Tag",
		Columns: []string{"name", "slug"},
		Search:  "name",
		Fields: []Field{
			{Name: "name", Label: "name", Type: FieldText, Required: true},
			{Name: "slug", Label: "slug", Type: FieldSlug, Required: true},
		},
	},
	{
		Slug: "figures", Name: "Figures", Collection: "figures", Singular: "figure", Type: "Figure",
		Columns: []string{"name", "slug"},
		Search:  "name",
		Fields: []Field{
			{Name: "name", Label: "name", Type: FieldText, Required: true},
			{Name: "slug", Label: "slug", Type: FieldSlug, Required: true},
			{Name: "description", Label: "description", Type: FieldMultiline},
			{Name: "image", Label: "image file id", Type: FieldMedia},
		},
	},
	{
		Slug: "users", Name: "Users", Collection: "users", Singular: "user", Type: "User",
		Columns: []string{"username", "email", "blocked"},
		Search:  "username",
		Fields: []Field{
			{Name: "username", Label: "username", Type: FieldText, Required: true},
			{Name: "email", Label: "email", Type: FieldEmail, Required: true},
			{Name: "blocked", Label: "blocked", Type: FieldBool},
		},
	},
	{
		Slug: "comments", Name: "Comments", Collection: "comments", Singular: "comment", Type: "Comment",
		Columns: []string{"author", "content", "approved"},
		Search:  "content",
		Fields: []Field{
			{Name: "author", Label: "author", Type: FieldText, Required: true},
			{Name: "email", Label: "email", Type: FieldEmail},
			{Name: "content", Label: "content", Type: FieldMultiline, Required: true},
			{Name: "post", Label: "post id", Type: FieldRelation},
			{Name: "approved", Label: "approved", Type: FieldBool},
		},
	},
	{
		Slug: "messages", Name: "Messages", Collection: "contactMessages", Singular: "contactMessage", Type: "ContactMessage",
		Columns: []string{"name", "email", "subject"},
		Search:  "subject",
		Fields: []Field{
			{Name: "name", Label: "name", Type: FieldText, Required: true},
			{Name: "email", Label: "email", Type: FieldEmail, Required: true},
			{Name: "subject", Label: "subject", Type: FieldText},
			{Name: "message", Label: "message", Type: FieldMultiline, Required: true},
		},
	},
	{
		Slug: "ads", Name: "Ads", Collection: "ads", Singular: "ad", Type: "Ad",
		Columns: []string{"name", "position", "active"},
		Search:  "name",
		Fields: []Field{
			{Name: "name", Label: "name", Type: FieldText, Required: true},
			{Name: "url", Label: "target url", Type: FieldText},
			{Name: "position", Label: "position", Type: FieldNumber},
			{Name: "image", Label: "image file id", Type: FieldMedia},
			{Name: "active", Label: "active", Type: FieldBool},
		},
	},
	{
		Slug: "logo", Name: "Logo", Singular: "logo", Type: "Logo", Single: true,
		Fields: []Field{
			{Name: "alt", Label: "alt text", Type: FieldText},
			{Name: "image", Label: "image file id", Type: FieldMedia, Required: true},
		},
	},
	{
		Slug: "policy", Name: "Policy", Singular: "policy", Type: "Policy", Single: true,
		Fields: []Field{
			{Name: "title", Label: "title", Type: FieldText},
			{Name: "content", Label: "content", Type: FieldMultiline, Required: true},
		},
	},
}

// KindBySlug returns the kind whose route segment is slug.
func KindBySlug(slug string) (Kind, bool) {
	for _, k := range Kinds {
		if k.Slug == slug {
			return k, true
		}
	}
	return Kind{}, false
}
