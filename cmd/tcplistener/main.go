package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/Brownie44l1/minihttp/internal/request"
	"github.com/Brownie44l1/minihttp/internal/response"
)

func main() {
	addr := flag.String("addr", ":42069", "address to listen on")
	flag.Parse()

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "listen:", err)
		os.Exit(1)
	}
	defer listener.Close()
	fmt.Printf("Listening on %s...\n", listener.Addr())

	for {
		conn, err := listener.Accept()
		if err != nil {
			fmt.Println("Accept error:", err)
			continue
		}

		go handleConnection(conn)
	}
}

func handleConnection(conn net.Conn) {
	defer conn.Close()

	req, err := request.RequestFromReader(conn)
	if err != nil {
		fmt.Println("failed to parse request:", err)
		return
	}

	dumpRequest(os.Stdout, req)

	w := response.NewWriter(conn)
	if err := w.WriteResponse(req.Version, response.Text(response.StatusOK, "Hello from your HTTP server!\n")); err != nil {
		fmt.Println("failed to write response:", err)
	}
}

// dumpRequest prints the request line, the headers and every body chunk
func dumpRequest(out io.Writer, req *request.Request) {
	fmt.Fprintln(out, "Request line:")
	fmt.Fprintf(out, "- Method: %s\n", req.Method)
	fmt.Fprintf(out, "- Target: %s\n", req.Path)
	fmt.Fprintf(out, "- Version: %s\n", req.Version)

	fmt.Fprintln(out, "Headers:")
	for name, value := range req.Headers.All() {
		fmt.Fprintf(out, "- %s: %s\n", name, value)
	}

	if req.Body == nil {
		fmt.Fprintln(out, "Body: none")
		return
	}

	fmt.Fprintf(out, "Body (%s):\n", req.Body.Kind())
	for chunk, err := range req.Body.Chunks() {
		if err != nil {
			fmt.Fprintf(out, "- error: %v\n", err)
			continue
		}
		line := fmt.Sprintf("- %d bytes: %q", len(chunk.Payload), chunk.Payload)
		if chunk.Extension != "" {
			line += " ext=" + chunk.Extension
		}
		fmt.Fprintln(out, line)
	}

	if trailers := req.Body.Trailers(); trailers.Len() > 0 {
		fmt.Fprintln(out, "Trailers:")
		fmt.Fprintln(out, "- "+strings.ReplaceAll(trailers.Format(), "\r\n", "\n- "))
	}
}
