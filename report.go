package main

import (
	"fmt"
	"io"
)

// printInstructions writes the post-install usage block. Pure output: the
// caller supplies the release directory, build directory and whichever
// update command succeeded.
func printInstructions(w io.Writer, reldir, blddir, updateCmd string) {
	fmt.Fprintf(w, `
The MacPorts installation has been successfully installed in
%[2]s.

To use it please update the PATH and MANPATH environment variables in
your ~/.bashrc file as follows:

   export MP_PATH="%[2]s"
   export PATH="${MP_PATH}/bin:${PATH}"
   export MANPATH="${MP_PATH}/share/man:${MANPATH}"

Once that is done and you have sourced ~/.bashrc, you will be able to
run the "port" command directly.

   $ source ~/.bashrc
   $ port list

If that works you can start installing packages like this:

   $ sudo port install htop

You can update your installation like this:

   $ %[1]s

To clean up the build data now that it is no longer needed:

   $ sudo rm -rf %[3]s

To delete this installation simply remove the build, installation and
release areas as follows. Then remove the MP_PATH data from ~/.bashrc.

   $ sudo rm -rf %[2]s %[3]s

`, updateCmd, reldir, blddir)
}
