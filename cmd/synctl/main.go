package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
)

// synctl triggers sync operations on a running contacts-sync daemon and
// inspects the local contact records.
//
// Usage examples on the command line:
// > go run main.go -addr=http://localhost:8080 pull 7
// > go run main.go push 56
// > go run main.go list
// > go run main.go get 56
func main() {
	addr := flag.String("addr", "http://localhost:8080", "base URL of the contacts-sync daemon")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	switch args[0] {
	case "pull":
		requireArg(args, "pull needs an external id")
		sendRequest(http.MethodPost, fmt.Sprintf("%s/sync/users/%s", *addr, args[1]))
	case "push":
		requireArg(args, "push needs a contact id")
		sendRequest(http.MethodPost, fmt.Sprintf("%s/contacts/%s/push", *addr, args[1]))
	case "list":
		sendRequest(http.MethodGet, fmt.Sprintf("%s/contacts", *addr))
	case "get":
		requireArg(args, "get needs a contact id")
		sendRequest(http.MethodGet, fmt.Sprintf("%s/contacts/%s", *addr, args[1]))
	default:
		usage()
	}
}

func requireArg(args []string, message string) {
	if len(args) < 2 {
		fmt.Println(message)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: synctl [-addr=URL] pull <externalId> | push <contactId> | list | get <contactId>")
	os.Exit(1)
}

func sendRequest(method string, requestURL string) {
	req, err := http.NewRequest(method, requestURL, nil)
	if err != nil {
		fmt.Println("could not create request", err)
		os.Exit(1)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("error making http request", err)
		os.Exit(1)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Println("could not read response body", err)
		os.Exit(1)
	}
	fmt.Println(res.Status)
	fmt.Println(string(resBody))
}
