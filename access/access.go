// Package access decides whether an identity may perform an action on a
// resource. The permission matrix lives in a casbin ABAC model whose policy
// rules are evaluated against the caller and the resource's owner and status.
package access

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"greenmag/domain"
	"greenmag/errs"
)

// Action is something a caller attempts to do to a resource.
type Action string

const (
	Read     Action = "read"
	Create   Action = "create"
	Update   Action = "update"
	Moderate Action = "moderate"
	Delete   Action = "delete"
	Toggle   Action = "toggle"
)

// Resource kinds.
const (
	KindArticle = "article"
	KindComment = "comment"
	KindLike    = "like"
)

// Resource is what the rules look at. Field names are referenced by the
// policy rules below, so they must not be renamed independently.
type Resource struct {
	Kind    string
	OwnerID int
	Status  string
}

// subject is the request subject. Anonymous callers have an empty role.
type subject struct {
	ID   int
	Role string
}

// Article describes an existing article.
func Article(a *domain.Article) Resource {
	return Resource{Kind: KindArticle, OwnerID: a.AuthorID, Status: string(a.Status)}
}

// NewArticle describes an article that does not exist yet.
func NewArticle() Resource {
	return Resource{Kind: KindArticle}
}

// CommentOn describes a comment to be created on a.
func CommentOn(a *domain.Article) Resource {
	return Resource{Kind: KindComment, OwnerID: a.AuthorID, Status: string(a.Status)}
}

// Comment describes an existing comment. Its owner is the comment's author.
func Comment(c *domain.Comment) Resource {
	return Resource{Kind: KindComment, OwnerID: c.UserID}
}

// LikeOn describes the like relation of the caller to a.
func LikeOn(a *domain.Article) Resource {
	return Resource{Kind: KindLike, OwnerID: a.AuthorID, Status: string(a.Status)}
}

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = role, kind, act, rule

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (p.role == "*" || r.sub.Role == p.role) && r.obj.Kind == p.kind && r.act == p.act && eval(p.rule)
`

const (
	always   = "true"
	approved = "r.obj.Status == 'APPROVED'"
	owner    = "r.obj.OwnerID == r.sub.ID"
)

// policies is the permission matrix. "*" matches anonymous callers too.
var policies = [][]string{
	{"*", KindArticle, string(Read), approved},
	{"EDITOR", KindArticle, string(Read), owner},
	{"ADMIN", KindArticle, string(Read), always},

	{"EDITOR", KindArticle, string(Create), always},
	{"ADMIN", KindArticle, string(Create), always},

	{"EDITOR", KindArticle, string(Update), owner},
	{"ADMIN", KindArticle, string(Update), always},

	{"ADMIN", KindArticle, string(Moderate), always},

	{"EDITOR", KindArticle, string(Delete), owner},
	{"ADMIN", KindArticle, string(Delete), always},

	{"USER", KindComment, string(Create), approved},
	{"EDITOR", KindComment, string(Create), approved},
	{"ADMIN", KindComment, string(Create), approved},

	{"USER", KindComment, string(Update), owner},
	{"EDITOR", KindComment, string(Update), owner},
	{"ADMIN", KindComment, string(Update), always},

	{"USER", KindComment, string(Delete), owner},
	{"EDITOR", KindComment, string(Delete), owner},
	{"ADMIN", KindComment, string(Delete), always},

	{"USER", KindLike, string(Toggle), always},
	{"EDITOR", KindLike, string(Toggle), always},
	{"ADMIN", KindLike, string(Toggle), always},
}

// Evaluator answers access questions. It is safe for concurrent use.
type Evaluator struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEvaluator builds the in-memory model and loads the permission matrix.
func NewEvaluator() (*Evaluator, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("access: load model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("access: create enforcer: %w", err)
	}
	if _, err := e.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("access: load policies: %w", err)
	}
	return &Evaluator{enforcer: e}, nil
}

// Allowed reports whether ident may perform act on res. A nil ident is anonymous.
func (e *Evaluator) Allowed(ident *domain.Identity, act Action, res Resource) (bool, error) {
	sub := subject{}
	if ident != nil {
		sub = subject{ID: ident.UserID, Role: string(ident.Role)}
	}
	return e.enforcer.Enforce(sub, res, string(act))
}

// Check is Allowed turned into the error a caller should see. Denied reads
// surface as ENOTFOUND so they don't confirm the resource exists; so do
// comments on articles that are not APPROVED. Denied writes by anonymous
// callers are EUNAUTHORIZED, everything else denied is EFORBIDDEN.
func (e *Evaluator) Check(ident *domain.Identity, act Action, res Resource) error {
	ok, err := e.Allowed(ident, act, res)
	if err != nil {
		return errs.Internal(err)
	}
	if ok {
		return nil
	}
	switch {
	case act == Read:
		return errs.Errorf(errs.ENOTFOUND, "The %s does not exist.", res.Kind)
	case ident == nil:
		return errs.Errorf(errs.EUNAUTHORIZED, "You must be signed in to do that.")
	case act == Create && res.Kind == KindComment:
		return errs.Errorf(errs.ENOTFOUND, "The article does not exist or is not approved.")
	}
	return errs.Errorf(errs.EFORBIDDEN, "You are not allowed to %s this %s.", act, res.Kind)
}
