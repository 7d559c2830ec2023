package semantic

import "github.com/starford/posecontact/internal/models"

// ValidateRelations resolves both ends of every relation and checks the
// predicate's pairing rule. Issues come out in emission order per relation:
// subject reference, object reference, then pairing.
func ValidateRelations(relations any, ids Index) []models.Issue {
	var issues []models.Issue
	base := Path{"relations"}
	for i, item := range sequence(relations) {
		rel, ok := item.(map[string]any)
		if !ok {
			continue
		}
		at := base.Index(i)

		subjectKind, subjectIssues := ResolveRef(rel["subject"], at.Child("subject"), ids)
		objectKind, objectIssues := ResolveRef(rel["object"], at.Child("object"), ids)
		issues = append(issues, subjectIssues...)
		issues = append(issues, objectIssues...)

		predicate, _ := rel["predicate"].(string)
		if predicate == "" {
			continue
		}
		if !Allows(predicate, subjectKind, objectKind) {
			issues = append(issues, issueAt(at, "predicate '%s' requires %s", predicate, DescribeExpected(predicate)))
		}
	}
	return issues
}
