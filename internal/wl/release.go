package wl

// releaseSince maps an interface to the first version with a release
// request. Older objects are only dropped on our side.
var releaseSince = map[string]uint32{
	"wl_seat":     5,
	"wl_pointer":  3,
	"wl_keyboard": 3,
	"wl_output":   3,
}

// CanRelease reports whether an iface object bound at version accepts
// its release request.
func CanRelease(iface string, version uint32) bool {
	since, ok := releaseSince[iface]
	return ok && version >= since
}
