package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"lorastep/config"
	"lorastep/lora"
)

// console is an interactive AT session with the modem
func console(c config.Config) {
	link := dial(c)
	defer link.Close()

	router := lora.NewRouter(link.Engine, lora.HandlerFunc(func(m lora.RemoteMessage) {
		fmt.Println(m)
	}))

	fmt.Println("Enter AT commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printConsoleHelp()

		case "recv":
			n := 0
			for {
				ok, err := router.Poll()
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					continue
				}
				if !ok && link.Engine.Pending() == 0 {
					break
				}
				if ok {
					n++
				}
			}
			fmt.Printf("%d message(s)\n", n)

		default:
			resp, err := link.Engine.SendCommand(line, lora.CommandTimeout)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Println(resp)
		}
	}
}

func printConsoleHelp() {
	fmt.Println(`Available commands:
  AT...      send a raw AT command, e.g. AT+VER? or AT+SEND=100,2,ON
  recv       print received messages waiting in the buffer
  help, ?    show this help
  quit, q    exit`)
}
