package models

import "strings"

// Permission is a bit set using the platform's permission bit layout
type Permission int64

const (
	PermissionAdministrator  Permission = 1 << 3
	PermissionManageChannels Permission = 1 << 4
	PermissionSendMessages   Permission = 1 << 11
	PermissionManageMessages Permission = 1 << 13
	PermissionManageRoles    Permission = 1 << 28
)

var permissionNames = []struct {
	perm Permission
	name string
}{
	{PermissionAdministrator, "Administrator"},
	{PermissionManageChannels, "Manage Channels"},
	{PermissionSendMessages, "Send Messages"},
	{PermissionManageMessages, "Manage Messages"},
	{PermissionManageRoles, "Manage Roles"},
}

// Has reports whether p grants required. Administrator grants everything.
func (p Permission) Has(required Permission) bool {
	if p&PermissionAdministrator != 0 {
		return true
	}
	return p&required == required
}

func (p Permission) String() string {
	var names []string
	for _, pn := range permissionNames {
		if p&pn.perm != 0 {
			names = append(names, pn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
