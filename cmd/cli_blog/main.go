package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"blogverse/internal/blogapi"
	"blogverse/internal/domain"
	"blogverse/internal/service"
)

type cliConfig struct {
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:5000/api"`
}

// cliSession es la sesion local de la consola: vive mientras corre el proceso.
type cliSession struct {
	token string
	user  domain.User
}

func (s *cliSession) Token() string { return s.token }

func main() {
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	api := blogapi.NewClient(cfg.APIBaseURL, &http.Client{}, logger, nil)
	sess := &cliSession{}
	ctx := blogapi.WithTokenSource(context.Background(), sess)

	for {
		fmt.Println("\n===== BlogVerse CLI =====")
		if sess.token == "" {
			fmt.Println("[1] Login")
		} else {
			fmt.Printf("Sesion: %s <%s>\n", sess.user.DisplayName(), sess.user.Email)
			fmt.Println("[1] Logout")
		}
		fmt.Println("[2] Listar blogs (con busqueda)")
		fmt.Println("[3] Mis blogs")
		fmt.Println("[4] Ver blog")
		fmt.Println("[5] Crear blog")
		fmt.Println("[6] Borrar blog")
		fmt.Println("[0] Salir")
		fmt.Print("Selecciona una opcion: ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		var flowErr error
		switch strings.TrimSpace(line) {
		case "1":
			if sess.token == "" {
				flowErr = loginFlow(ctx, reader, api, sess)
			} else {
				*sess = cliSession{}
				fmt.Println("Sesion cerrada.")
			}
		case "2":
			flowErr = listFlow(ctx, reader, api)
		case "3":
			flowErr = requireLogin(sess, func() error { return myBlogsFlow(ctx, api, sess) })
		case "4":
			flowErr = requireLogin(sess, func() error { return viewFlow(ctx, reader, api) })
		case "5":
			flowErr = requireLogin(sess, func() error { return createFlow(ctx, reader, api, sess) })
		case "6":
			flowErr = requireLogin(sess, func() error { return deleteFlow(ctx, reader, api) })
		case "0":
			return
		default:
			fmt.Println("Opcion invalida.")
		}
		if flowErr != nil {
			if errors.Is(flowErr, blogapi.ErrTokenRejected) {
				*sess = cliSession{}
				fmt.Println("El token fue rechazado; vuelve a iniciar sesion.")
				continue
			}
			fmt.Printf("Error: %s\n", blogapi.Message(flowErr, flowErr.Error()))
		}
	}
}

func requireLogin(sess *cliSession, fn func() error) error {
	if sess.token == "" {
		fmt.Println("Necesitas iniciar sesion.")
		return nil
	}
	return fn()
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	text, _ := reader.ReadString('\n')
	return strings.TrimRight(text, "\r\n")
}

func loginFlow(ctx context.Context, reader *bufio.Reader, api blogapi.API, sess *cliSession) error {
	creds := domain.Credentials{
		Email:    strings.TrimSpace(prompt(reader, "Email: ")),
		Password: prompt(reader, "Password: "),
	}
	if err := service.ValidateCredentials(creds); err != nil {
		return err
	}
	res, err := api.Login(ctx, creds)
	if err != nil {
		return err
	}
	if !res.Complete() {
		return errors.New("respuesta de login incompleta")
	}
	sess.token = res.Token
	sess.user = *res.User
	fmt.Printf("Hola, %s.\n", sess.user.DisplayName())
	return nil
}

func printPosts(posts domain.PostList) {
	if len(posts) == 0 {
		fmt.Println("No hay blogs.")
		return
	}
	for i, p := range posts {
		author := p.Author.Name
		if author == "" {
			author = p.Author.ID
		}
		fmt.Printf("[%d] %s (ID: %s, autor: %s)\n", i+1, p.Title, p.ID, author)
	}
}

func listFlow(ctx context.Context, reader *bufio.Reader, api blogapi.API) error {
	posts, err := api.ListPosts(ctx)
	if err != nil {
		return err
	}
	q := prompt(reader, "Buscar (enter para todos): ")
	printPosts(service.FilterPosts(posts, q))
	return nil
}

func myBlogsFlow(ctx context.Context, api blogapi.API, sess *cliSession) error {
	posts, err := api.ListUserPosts(ctx, sess.user.ID)
	if err != nil {
		return err
	}
	printPosts(posts)
	return nil
}

func viewFlow(ctx context.Context, reader *bufio.Reader, api blogapi.API) error {
	post, err := api.GetPost(ctx, strings.TrimSpace(prompt(reader, "ID del blog: ")))
	if err != nil {
		return err
	}
	fmt.Printf("\n%s\npor %s\n\n%s\n", post.Title, post.Author.Name, post.Content)
	return nil
}

func createFlow(ctx context.Context, reader *bufio.Reader, api blogapi.API, sess *cliSession) error {
	draft := domain.PostDraft{
		Title:   prompt(reader, "Titulo: "),
		Content: prompt(reader, "Contenido: "),
	}
	if err := service.ValidateDraft(draft); err != nil {
		return err
	}
	post, err := api.CreatePost(ctx, draft, sess.user.ID, nil)
	if err != nil {
		return err
	}
	fmt.Printf("Blog creado (ID: %s).\n", post.ID)
	return nil
}

func deleteFlow(ctx context.Context, reader *bufio.Reader, api blogapi.API) error {
	id := strings.TrimSpace(prompt(reader, "ID del blog: "))
	if !strings.EqualFold(strings.TrimSpace(prompt(reader, "Confirmar borrado [s/N]: ")), "s") {
		fmt.Println("Cancelado.")
		return nil
	}
	res, err := api.DeletePost(ctx, id)
	if err != nil {
		return err
	}
	fmt.Println(res.Message)
	return nil
}
