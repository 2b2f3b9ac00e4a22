package gqlapi

import (
	"github.com/graphql-go/graphql"

	"github.com/spec-kit/feed-service/internal/auth"
	"github.com/spec-kit/feed-service/internal/domain"
	"github.com/spec-kit/feed-service/internal/service"
	apperrors "github.com/spec-kit/feed-service/pkg/util/errorutil"
)

// Resolver binds GraphQL fields to the services. Mutations on posts and the
// user query require the identity placed in the request context by the
// optional guard.
type Resolver struct {
	auth  *service.AuthService
	posts *service.PostService
	users *service.UserService
}

// NewResolver constructs the resolver set.
func NewResolver(authService *service.AuthService, posts *service.PostService, users *service.UserService) *Resolver {
	return &Resolver{auth: authService, posts: posts, users: users}
}

func requireIdentity(p graphql.ResolveParams) (domain.Identity, error) {
	identity, ok := auth.IdentityFromContext(p.Context)
	if !ok {
		return domain.Identity{}, apperrors.NewUnauthenticated(auth.NotAuthenticatedMessage)
	}
	return identity, nil
}

func (r *Resolver) createUser(p graphql.ResolveParams) (interface{}, error) {
	in, _ := p.Args["userInput"].(map[string]interface{})
	user, err := r.auth.Signup(p.Context, service.SignupInput{
		Email:    stringArg(in, "email"),
		Name:     stringArg(in, "name"),
		Password: stringArg(in, "password"),
	})
	if err != nil {
		return nil, err
	}
	return userValue(*user), nil
}

func (r *Resolver) login(p graphql.ResolveParams) (interface{}, error) {
	result, err := r.auth.Login(p.Context, stringArg(p.Args, "email"), stringArg(p.Args, "password"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"token": result.Token, "userId": result.UserID}, nil
}

func (r *Resolver) listPosts(p graphql.ResolveParams) (interface{}, error) {
	if _, err := requireIdentity(p); err != nil {
		return nil, err
	}
	page, _ := p.Args["page"].(int)
	result, err := r.posts.ListPosts(p.Context, page)
	if err != nil {
		return nil, err
	}
	posts := make([]interface{}, 0, len(result.Posts))
	for _, post := range result.Posts {
		posts = append(posts, postValue(post))
	}
	return map[string]interface{}{"posts": posts, "totalPosts": int(result.TotalItems)}, nil
}

func (r *Resolver) post(p graphql.ResolveParams) (interface{}, error) {
	if _, err := requireIdentity(p); err != nil {
		return nil, err
	}
	post, err := r.posts.GetPost(p.Context, stringArg(p.Args, "id"))
	if err != nil {
		return nil, err
	}
	return postValue(*post), nil
}

func (r *Resolver) createPost(p graphql.ResolveParams) (interface{}, error) {
	identity, err := requireIdentity(p)
	if err != nil {
		return nil, err
	}
	created, err := r.posts.CreatePost(p.Context, identity, postInput(p.Args))
	if err != nil {
		return nil, err
	}
	return postValue(created.Post), nil
}

func (r *Resolver) updatePost(p graphql.ResolveParams) (interface{}, error) {
	identity, err := requireIdentity(p)
	if err != nil {
		return nil, err
	}
	post, err := r.posts.UpdatePost(p.Context, identity, stringArg(p.Args, "id"), postInput(p.Args))
	if err != nil {
		return nil, err
	}
	return postValue(*post), nil
}

func (r *Resolver) deletePost(p graphql.ResolveParams) (interface{}, error) {
	identity, err := requireIdentity(p)
	if err != nil {
		return nil, err
	}
	if err := r.posts.DeletePost(p.Context, identity, stringArg(p.Args, "id")); err != nil {
		return nil, err
	}
	return true, nil
}

func (r *Resolver) user(p graphql.ResolveParams) (interface{}, error) {
	identity, err := requireIdentity(p)
	if err != nil {
		return nil, err
	}
	user, err := r.users.GetUser(p.Context, identity)
	if err != nil {
		return nil, err
	}
	return userValue(*user), nil
}

func (r *Resolver) updateStatus(p graphql.ResolveParams) (interface{}, error) {
	identity, err := requireIdentity(p)
	if err != nil {
		return nil, err
	}
	user, err := r.users.UpdateStatus(p.Context, identity, stringArg(p.Args, "status"))
	if err != nil {
		return nil, err
	}
	return userValue(*user), nil
}

func postInput(args map[string]interface{}) service.PostInput {
	in, _ := args["postInput"].(map[string]interface{})
	return service.PostInput{
		Title:    stringArg(in, "title"),
		Content:  stringArg(in, "content"),
		ImageURL: stringArg(in, "imageUrl"),
	}
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}
