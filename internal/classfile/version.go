package classfile

// MajorVersion identifies the runtime release that produced a class file.
// Known tags carry their raw header value; Unknown is the zero value and
// covers every raw value outside the release table.
type MajorVersion uint16

const (
	Unknown MajorVersion = 0

	Java1_1 MajorVersion = 0x2D
	Java1_2 MajorVersion = 0x2E
	Java1_3 MajorVersion = 0x2F
	Java1_4 MajorVersion = 0x30
	Java5   MajorVersion = 0x31
	Java6   MajorVersion = 0x32
	Java7   MajorVersion = 0x33
	Java8   MajorVersion = 0x34
	Java9   MajorVersion = 0x35
	Java10  MajorVersion = 0x36
	Java11  MajorVersion = 0x37
	Java12  MajorVersion = 0x38
	Java13  MajorVersion = 0x39
	Java14  MajorVersion = 0x3A
	Java15  MajorVersion = 0x3B
	Java16  MajorVersion = 0x3C
	Java17  MajorVersion = 0x3D
	Java18  MajorVersion = 0x3E
	Java19  MajorVersion = 0x3F
)

const unknownLabel = "Unknown Version"

// release is one row of the release table
type release struct {
	version MajorVersion
	label   string
}

// releases is ordered oldest to newest.
var releases = [...]release{
	{Java1_1, "Java 1.1"},
	{Java1_2, "Java 1.2"},
	{Java1_3, "Java 1.3"},
	{Java1_4, "Java 1.4"},
	{Java5, "Java SE 5.0"},
	{Java6, "Java SE 6.0"},
	{Java7, "Java SE 7"},
	{Java8, "Java SE 8"},
	{Java9, "Java SE 9"},
	{Java10, "Java SE 10"},
	{Java11, "Java SE 11"},
	{Java12, "Java SE 12"},
	{Java13, "Java SE 13"},
	{Java14, "Java SE 14"},
	{Java15, "Java SE 15"},
	{Java16, "Java SE 16"},
	{Java17, "Java SE 17"},
	{Java18, "Java SE 18"},
	{Java19, "Java SE 19"},
}

var (
	byRaw   map[uint16]MajorVersion
	byLabel map[string]MajorVersion
	labels  map[MajorVersion]string
)

func init() {
	byRaw = make(map[uint16]MajorVersion, len(releases))
	byLabel = make(map[string]MajorVersion, len(releases))
	labels = make(map[MajorVersion]string, len(releases))
	for _, r := range releases {
		byRaw[uint16(r.version)] = r.version
		byLabel[r.label] = r.version
		labels[r.version] = r.label
	}
}

// ResolveMajorVersion maps a raw major_version field to its release tag.
// Values outside the release table resolve to Unknown; it never fails.
func ResolveMajorVersion(raw uint16) MajorVersion {
	if v, ok := byRaw[raw]; ok {
		return v
	}
	return Unknown
}

// String returns the release name, e.g. "Java SE 8".
func (v MajorVersion) String() string {
	if label, ok := labels[v]; ok {
		return label
	}
	return unknownLabel
}

// Known reports whether v is one of the tabled releases.
func (v MajorVersion) Known() bool {
	_, ok := labels[v]
	return ok
}

// Raw returns the header value for v, or 0 for Unknown.
func (v MajorVersion) Raw() uint16 {
	if !v.Known() {
		return 0
	}
	return uint16(v)
}

// MarshalText renders v by its release name.
func (v MajorVersion) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// KnownMajorVersions returns every known release, oldest first.
func KnownMajorVersions() []MajorVersion {
	out := make([]MajorVersion, len(releases))
	for i, r := range releases {
		out[i] = r.version
	}
	return out
}

// LookupMajorVersion finds a release by its exact label ("Java SE 11").
func LookupMajorVersion(label string) (MajorVersion, bool) {
	v, ok := byLabel[label]
	return v, ok
}
