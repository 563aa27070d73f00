package rbac

// Default policy. Trainees take tests and read their own progress; mentors
// drive the curriculum and see everything; admin is unrestricted.
var RolePermissions = map[string][]string{
	"trainee": {
		"test:take",
		"test:view",
		"progress:view-own",
		"result:view-own",
		"user:change_password",
	},
	"mentor": {
		"path:create",
		"path:assign",
		"path:view",
		"stage:open",
		"test:create",
		"test:view",
		"test:grant",
		"progress:view-all",
		"result:view-all",
		"users:list",
		"users:bulk_upsert",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
