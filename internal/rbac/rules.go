package rbac

// Default role policy. A trailing "*" matches by prefix; bare "*" matches
// everything.
var RolePermissions = map[string][]string{
	"student": {
		"blueprint:view",
		"bank:view",
		"attempt:create",
		"attempt:start",
		"attempt:submit",
		"attempt:flag",
		"attempt:view-own",
		"flashcards:view",
		"flashcards:study",
		"course:view",
		"homework:view",
		"homework:submit",
		"user:change_password",
	},
	"teacher": {
		"blueprint:*",
		"bank:*",
		"attempt:view-all",
		"flashcards:*",
		"course:*",
		"homework:*",
		"users:list",
		"users:bulk_upsert",
		"user:change_password",
		"events:read",
	},
	"admin": {
		"*", // everything
	},
}
