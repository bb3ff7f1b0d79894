package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elimu-project/elimu/core"
)

func (cli *commandLine) syncUser(uname string) error {
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}

	report, err := cli.lmsSvc.SyncUser(context.Background(), usr.ID)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
