// ./main.go
package main

import "github.com/xkilldash9x/scanrelay/cmd"

func main() {
	cmd.Execute()
}
