package formschema

import (
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSlugifyKey(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Event Date":          "event_date",
		"  Guest count!! ":    "guest_count",
		"__Already_snake__":   "already_snake",
		"Venue / Location #2": "venue_location_2",
		"¿¡":                  "",
	}
	for in, want := range cases {
		got := SlugifyKey(in)
		require.Equal(t, want, got, in)
		require.Equal(t, got, SlugifyKey(got), "slugify must be idempotent for %q", in)
	}
}

func TestUniqueKeySuffixes(t *testing.T) {
	t.Parallel()

	used := map[string]struct{}{}
	first := UniqueKey("foo", used)
	require.Equal(t, "foo", first)
	used[first] = struct{}{}

	second := UniqueKey("Foo", used)
	require.Equal(t, "foo_2", second)
	used[second] = struct{}{}

	require.Equal(t, "foo_3", UniqueKey("FOO!", used))
	require.Equal(t, "field", UniqueKey("!!!", used))
}

func TestParseFieldType(t *testing.T) {
	t.Parallel()

	ft, err := ParseFieldType(" Select ")
	require.NoError(t, err)
	require.Equal(t, TypeSelect, ft)

	_, err = ParseFieldType("checkbox")
	require.ErrorIs(t, err, ErrInvalidType)
}

func TestInputTypeMapsPhoneToTel(t *testing.T) {
	t.Parallel()

	require.Equal(t, "tel", TypePhone.InputType())
	require.Equal(t, "email", TypeEmail.InputType())
	require.Equal(t, "textarea", TypeTextarea.InputType())
}

func TestParseOptions(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"a", "b c"}, ParseOptions(" a, ,b c ,"))
	require.Empty(t, ParseOptions(""))
}

func TestDefaultFields(t *testing.T) {
	t.Parallel()

	profileID := uuid.New()
	fields := DefaultFields(profileID)
	require.Len(t, fields, 7)
	for i, f := range fields {
		require.Equal(t, (i+1)*10, f.OrderIndex)
		require.Equal(t, profileID, f.ProfileID)
		if f.Type != TypeSelect {
			require.Empty(t, f.Options, f.Key)
		}
	}
	require.Equal(t, "budget_range", fields[5].Key)
	require.Len(t, fields[5].Options, 4)
	require.True(t, fields[1].Protected())
	require.True(t, fields[2].Protected())
	require.False(t, fields[0].Protected())
}

func TestRenderFallbackWhenEmpty(t *testing.T) {
	t.Parallel()

	descriptors := Render(nil)
	require.Equal(t, []string{"full_name", "phone", "email", "event_date"}, Keys(descriptors))
	require.True(t, descriptors[0].Required)
	require.Equal(t, "tel", descriptors[1].InputType)
}

func TestRenderSortsByOrderIndex(t *testing.T) {
	t.Parallel()

	fields := []Field{
		{Key: "b", Label: "B", Type: TypeText, OrderIndex: 30},
		{Key: "a", Label: "A", Type: TypePhone, OrderIndex: 10},
	}
	descriptors := Render(fields)
	require.Equal(t, []string{"a", "b"}, Keys(descriptors))
	require.Equal(t, "tel", descriptors[0].InputType)
	require.NotNil(t, descriptors[1].Options)
	require.Equal(t, map[string]string{"a": "A", "b": "B"}, Labels(descriptors))
}

func TestCollectExcludesSlug(t *testing.T) {
	t.Parallel()

	values := url.Values{
		"profile_slug": {"acme"},
		"full_name":    {"Ada", "ignored"},
		"custom_thing": {"kept"},
	}
	data := Collect(values)
	require.Equal(t, FormData{"full_name": "Ada", "custom_thing": "kept"}, data)
}

func TestLabelledFollowsSchemaThenExtras(t *testing.T) {
	t.Parallel()

	descriptors := []Descriptor{{Key: "full_name", Label: "Full name"}, {Key: "phone", Label: "Phone"}}
	data := FormData{"phone": "555", "zeta": "z", "full_name": "Ada", "alpha": "a"}

	got := data.Labelled(descriptors)
	require.Equal(t, []LabelledValue{
		{Key: "full_name", Label: "Full name", Value: "Ada"},
		{Key: "phone", Label: "Phone", Value: "555"},
		{Key: "alpha", Label: "alpha", Value: "a"},
		{Key: "zeta", Label: "zeta", Value: "z"},
	}, got)
}
