package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"test:view",
		"submission:create",
		"submission:view-own",
	},
	"teacher": {
		"test:publish",
		"test:view",
		"rubric:extract",
		"submission:view-all",
		"submission:grade",
		"submission:assign",
	},
	"admin": {
		"*", // everything
	},
}
